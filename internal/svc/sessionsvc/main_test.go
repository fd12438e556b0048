package sessionsvc_test

import (
	"os"
	"testing"

	"github.com/yusufsyaifudin/ylog"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	ylog.SetGlobalLogger(ylog.NewZap(zap.NewNop()))
	os.Exit(m.Run())
}
