package utils

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitLogger(t *testing.T) {
	log := InitLogger("debug", false)
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v", log.GetLevel())
	}
	if _, ok := log.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("formatter = %T, want text", log.Formatter)
	}

	if other := InitLogger("nonsense", false); other == log || other.GetLevel() != logrus.InfoLevel {
		t.Errorf("each call should build a fresh info-level logger, got %v", other.GetLevel())
	}
}
