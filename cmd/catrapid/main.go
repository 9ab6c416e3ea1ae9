// cmd/catrapid/main.go
package main

import (
	"catrapid/internal/app"
	"catrapid/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
