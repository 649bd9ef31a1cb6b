package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// main 是 starfishctl 命令行的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

// run 执行命令，无论成功与否都会释放已建立的连接。
func run(ctx context.Context, args []string) (err error) {
	state := &appState{opts: &globalOptions{}}
	defer func() {
		err = errors.Join(err, state.close())
	}()

	root := newRootCmd(state)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
