// Command keymaster stores, retrieves and deletes secrets in a vault after
// the user authenticates.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/libopenstorage/keymaster"
	"github.com/libopenstorage/keymaster/auth/passcode"
	_ "github.com/libopenstorage/keymaster/aws/aws_secrets_manager"
	_ "github.com/libopenstorage/keymaster/docker"
	_ "github.com/libopenstorage/keymaster/file"
	_ "github.com/libopenstorage/keymaster/gcloud"
	_ "github.com/libopenstorage/keymaster/k8s"
	_ "github.com/libopenstorage/keymaster/keyring"
	_ "github.com/libopenstorage/keymaster/kvdb"
	_ "github.com/libopenstorage/keymaster/vault"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, deps{
		platform: hostPlatform,
		vault:    keymaster.New,
		terminal: passcode.OpenTTY,
	})
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, d deps) int {
	if args == nil {
		args = []string{}
	}
	a := &app{
		stdout: stdout,
		stderr: stderr,
		deps:   d,
	}
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil && a.helpRequested {
		err = keymaster.UsageError("help requested", nil)
	}
	if err != nil {
		report(stderr, err)
		if a.log != nil {
			a.log.WithError(err).Debug("keymaster failed")
		}
		return 1
	}
	return 0
}
