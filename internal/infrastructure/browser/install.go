package browser

import (
	crerr "github.com/cockroachdb/errors"
	"github.com/playwright-community/playwright-go"
)

// Install downloads the playwright driver and, unless driverOnly is set, the
// Chromium build it drives.
func Install(driverOnly bool) error {
	opts := &playwright.RunOptions{
		Browsers:            []string{"chromium"},
		SkipInstallBrowsers: driverOnly,
	}
	if err := playwright.Install(opts); err != nil {
		return crerr.Wrap(err, "install playwright")
	}
	return nil
}
