package utils

import (
	"log"
	"strings"
	"unicode"

	"github.com/anoixa/mozaiek/config"
)

// LogIfDev 仅在非生产环境输出
func LogIfDev(v ...interface{}) {
	if config.IsProduction() {
		return
	}
	log.Println(v...)
}

// LogIfDevf 仅在非生产环境输出
func LogIfDevf(format string, v ...interface{}) {
	if config.IsProduction() {
		return
	}
	log.Printf(format, v...)
}

func SanitizeLogMessage(msg string) string {
	var sb strings.Builder
	for _, r := range msg {
		if r == 10 || r == 9 {
			sb.WriteRune(' ')
		} else if unicode.IsPrint(r) || unicode.IsGraphic(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func SanitizeLogUsername(username string) string {
	if len(username) > 50 {
		username = username[:50] + "..."
	}
	return SanitizeLogMessage(username)
}
