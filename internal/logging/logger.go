// Package logging は logrus ロガーの生成を行います。
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New は指定されたレベルとフォーマット ("json" / "text") の logrus.Logger を返します。
func New(level logrus.Level, format string) *logrus.Logger {
	return NewWithOutput(os.Stdout, level, format)
}

// NewWithOutput は出力先を指定してロガーを作成します。テストでは bytes.Buffer を渡します。
func NewWithOutput(out io.Writer, level logrus.Level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(level)
	if format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
