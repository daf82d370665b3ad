package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tigerroll/sheetload/example/hrimport/internal/app"
	"github.com/tigerroll/sheetload/example/hrimport/internal/cli"
	"github.com/tigerroll/sheetload/example/hrimport/resources"
)

// main runs one hrimport command. SIGINT and SIGTERM cancel the command's
// context, which stops an import between two chunks.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	root := cli.NewRootCmd(app.Resources{
		Config:      resources.Config(),
		Migrations:  resources.Migrations(),
		EnvFilePath: envFilePath,
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		stop()
		os.Exit(cli.ExitCode(err))
	}
}
