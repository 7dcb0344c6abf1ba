package jobs

import (
	"os"
	"testing"

	"github.com/prendasoft/prenda-api/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Setup("test")
	os.Exit(m.Run())
}
