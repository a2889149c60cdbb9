package main

import (
	"fmt"
)

// background runs fn outside the request. Shutdown waits for it.
func (app *application) background(fn func()) {
	app.wg.Add(1)

	go func() {
		defer app.wg.Done()

		defer func() {
			if err := recover(); err != nil {
				app.logger.Errorw("background task panicked", "error", fmt.Sprintf("%v", err))
			}
		}()

		fn()
	}()
}
