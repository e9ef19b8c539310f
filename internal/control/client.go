package control

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/easycue/easycue/internal/models"
)

// Client calls the ServiceControl service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client on an existing connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial opens an insecure connection to a daemon listening on addr.
// The control API is bound to loopback only.
func Dial(addr string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	return conn, nil
}

// StartService starts the service and returns the result message.
func (c *Client) StartService(ctx context.Context) (string, error) {
	return c.invokeString(ctx, MethodStartService)
}

// StopService stops the service and returns the result message.
func (c *Client) StopService(ctx context.Context) (string, error) {
	return c.invokeString(ctx, MethodStopService)
}

// ToggleService stops a running service or starts a stopped one.
func (c *Client) ToggleService(ctx context.Context) (string, error) {
	return c.invokeString(ctx, MethodToggleService)
}

// CopyAddress returns the service address.
func (c *Client) CopyAddress(ctx context.Context) (string, error) {
	return c.invokeString(ctx, MethodCopyAddress)
}

// GetStatus returns the current status snapshot.
func (c *Client) GetStatus(ctx context.Context) (models.ServiceInfo, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetStatus, &emptypb.Empty{}, out); err != nil {
		return models.ServiceInfo{}, unwrapStatus(err)
	}
	return DecodeInfo(out)
}

func (c *Client) invokeString(ctx context.Context, method string) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, method, &emptypb.Empty{}, out); err != nil {
		return "", unwrapStatus(err)
	}
	return out.GetValue(), nil
}

// Error is a failed control call, carrying the gRPC code and the daemon's message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func unwrapStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	return &Error{Code: st.Code().String(), Message: st.Message()}
}
