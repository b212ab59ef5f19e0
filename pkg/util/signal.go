package util

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// SetupSignalHandler runs shutdownFunc once a close signal arrives.
// SIGUSR1 dumps the goroutine stacks instead of shutting down.
func SetupSignalHandler(shutdownFunc func(sig os.Signal)) {
	usrDefSignalChan := make(chan os.Signal, 1)

	signal.Notify(usrDefSignalChan, syscall.SIGUSR1)
	go func() {
		buf := make([]byte, 1<<16)
		for {
			sig := <-usrDefSignalChan
			if sig == syscall.SIGUSR1 {
				stackLen := runtime.Stack(buf, true)
				log.Info("dump goroutine stack", zap.String("signal", sig.String()), zap.ByteString("stack", buf[:stackLen]))
			}
		}
	}()

	closeSignalChan := make(chan os.Signal, 1)
	signal.Notify(closeSignalChan,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	go func() {
		sig := <-closeSignalChan
		log.Info("got signal to exit", zap.String("signal", sig.String()))
		shutdownFunc(sig)
	}()
}
