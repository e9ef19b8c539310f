package cli

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"

	"github.com/easycue/easycue/internal/config"
	"github.com/easycue/easycue/internal/control"
)

// callTimeout bounds a single control call. Stop may wait out the full
// graceful and forced termination windows.
const callTimeout = 15 * time.Second

// connectDaemon establishes a gRPC connection to the running daemon.
func connectDaemon() (*grpc.ClientConn, *control.Client, error) {
	info, err := config.LoadDaemonInfo()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load daemon info: %w", err)
	}
	if info == nil {
		return nil, nil, fmt.Errorf("daemon not running (start it with %s)", styleCommand.Render("easycue daemon start"))
	}

	conn, err := control.Dial(info.Addr())
	if err != nil {
		return nil, nil, err
	}

	return conn, control.NewClient(conn), nil
}

// withClient connects to the daemon and runs fn with a bounded context.
func withClient(fn func(ctx context.Context, client *control.Client) error) error {
	conn, client, err := connectDaemon()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	return fn(ctx, client)
}
