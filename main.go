package main

import (
	kiosk "github.com/PatrickAmbrosso/kiosk/app"
)

func main() {
	app := kiosk.New(nil, nil)
	app.Start()
}
