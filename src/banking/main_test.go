package banking

import (
	"os"
	"testing"

	"github.com/username/ledgerlink/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}
