package common_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factorlab/beltplan-go/internal/application/common"
)

type pingRequest struct {
	Message string
}

// recordingHandler echoes the request message and counts invocations.
type recordingHandler struct {
	calls int
}

func (h *recordingHandler) Handle(_ context.Context, request common.Request) (common.Response, error) {
	h.calls++
	return request.(pingRequest).Message, nil
}

// funcHandler adapts a bare function to the RequestHandler interface.
type funcHandler func(ctx context.Context, request common.Request) (common.Response, error)

func (f funcHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	return f(ctx, request)
}

func TestMediator_DispatchesToTheRegisteredHandler(t *testing.T) {
	// Arrange
	m := common.NewMediator()
	handler := &recordingHandler{}
	require.NoError(t, m.Register(reflect.TypeOf(pingRequest{}), handler))

	// Act
	response, err := m.Send(context.Background(), pingRequest{Message: "pong"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "pong", response)
	assert.Equal(t, 1, handler.calls)
}

func TestMediator_RejectsDuplicateRegistrations(t *testing.T) {
	// Arrange
	m := common.NewMediator()
	require.NoError(t, m.Register(reflect.TypeOf(pingRequest{}), &recordingHandler{}))

	// Act
	err := m.Register(reflect.TypeOf(pingRequest{}), &recordingHandler{})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler already registered for type")
}

func TestMediator_RejectsUnknownRequests(t *testing.T) {
	// Arrange
	m := common.NewMediator()

	// Act
	_, err := m.Send(context.Background(), pingRequest{})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no handler registered for type")
}

func TestMediator_RejectsNilArguments(t *testing.T) {
	// Arrange
	m := common.NewMediator()

	// Act & Assert
	assert.EqualError(t, m.Register(nil, &recordingHandler{}), "request type cannot be nil")
	assert.EqualError(t, m.Register(reflect.TypeOf(pingRequest{}), nil), "handler cannot be nil")
	_, err := m.Send(context.Background(), nil)
	assert.EqualError(t, err, "request cannot be nil")
}

func TestMediator_RunsMiddlewareInRegistrationOrder(t *testing.T) {
	// Arrange - two middlewares wrapping a handler that records its turn
	m := common.NewMediator()
	var order []string
	wrap := func(name string) common.Middleware {
		return func(ctx context.Context, request common.Request, next common.HandlerFunc) (common.Response, error) {
			order = append(order, name+"-before")
			response, err := next(ctx, request)
			order = append(order, name+"-after")
			return response, err
		}
	}
	m.Use(wrap("outer"))
	m.Use(wrap("inner"))
	require.NoError(t, common.RegisterHandler[pingRequest](m, funcHandler(
		func(context.Context, common.Request) (common.Response, error) {
			order = append(order, "handler")
			return nil, nil
		})))

	// Act
	_, err := m.Send(context.Background(), pingRequest{})

	// Assert - first registered runs outermost
	require.NoError(t, err)
	assert.Equal(t, []string{"outer-before", "inner-before", "handler", "inner-after", "outer-after"}, order)
}

func TestMediator_MiddlewareCanShortCircuit(t *testing.T) {
	// Arrange - the middleware refuses without calling next
	m := common.NewMediator()
	handler := &recordingHandler{}
	require.NoError(t, m.Register(reflect.TypeOf(pingRequest{}), handler))
	refused := errors.New("refused")
	m.Use(func(context.Context, common.Request, common.HandlerFunc) (common.Response, error) {
		return nil, refused
	})

	// Act
	_, err := m.Send(context.Background(), pingRequest{})

	// Assert
	require.ErrorIs(t, err, refused)
	assert.Zero(t, handler.calls)
}

func TestRegisterHandler_InfersTheRequestType(t *testing.T) {
	// Arrange
	m := common.NewMediator()
	handler := &recordingHandler{}

	// Act
	err := common.RegisterHandler[pingRequest](m, handler)

	// Assert
	require.NoError(t, err)
	response, err := m.Send(context.Background(), pingRequest{Message: "typed"})
	require.NoError(t, err)
	assert.Equal(t, "typed", response)
}
