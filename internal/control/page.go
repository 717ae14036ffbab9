package control

import (
	"fmt"
	"strings"

	"github.com/sweeney/smarthome-panel/internal/logic"
)

// responseHead is the status line, headers and page head.
const responseHead = "HTTP/1.1 200 OK\r\n" +
	"Content-Type: text/html; charset=UTF-8\r\n" +
	"Connection: close\r\n" +
	"\r\n" +
	"<!DOCTYPE html><html lang='en'><head>" +
	"<meta charset='UTF-8'>" +
	"<meta name='viewport' content='width=device-width,initial-scale=1'>" +
	"<title>SmartHome</title>" +
	"<style>" +
	"body{background:#222;font-family:Arial;color:#fff;margin:0;padding:1rem;text-align:center}" +
	".container{background:#333;padding:1rem;border-radius:8px;width:90%;max-width:320px;margin:auto}" +
	"h1{font-size:1.2rem;color:#ffa}" +
	".btn{display:inline-block;padding:0.5rem;border:none;border-radius:5px;background:#444;color:#fff;font-size:0.9rem;cursor:pointer}" +
	".btn:hover{background:#666}" +
	"</style></head><body><div class='container'>" +
	"<h1>Home Automation</h1>"

var buttonLabels = map[string]string{
	logic.CmdLightToggle:      "💡 Light",
	logic.CmdBrightnessLow:    "🌑 Brightness Low",
	logic.CmdBrightnessMedium: "🌗 Brightness Medium",
	logic.CmdBrightnessHigh:   "☀ Brightness High",
	logic.CmdVolumeLow:        "🔉 Volume Low",
	logic.CmdVolumeHigh:       "🔊 Volume High",
	logic.CmdMusicToggle:      "🎵 Music",
}

// pageOrder is the on-screen button order.
var pageOrder = []string{
	logic.CmdLightToggle,
	logic.CmdBrightnessLow,
	logic.CmdBrightnessMedium,
	logic.CmdBrightnessHigh,
	logic.CmdVolumeLow,
	logic.CmdVolumeHigh,
	logic.CmdMusicToggle,
}

// responseBody holds one form per command and closes the document.
var responseBody = buildBody()

func buildBody() string {
	var b strings.Builder
	for _, cmd := range pageOrder {
		fmt.Fprintf(&b, "<form action='./%s'><button class='btn'>%s</button></form>", cmd, buttonLabels[cmd])
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

// Response returns the complete static response document.
func Response() string {
	return responseHead + responseBody
}
