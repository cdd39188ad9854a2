package webloader

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// renderPageHTML loads a page in a headless browser and returns the HTML
// after the DOM is ready. Used only for pages whose server-rendered body
// carries too little text.
func renderPageHTML(ctx context.Context, urlStr string, timeout time.Duration, userAgent string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var html string
	if err := chromedp.Run(browserCtx, chromedp.Navigate(urlStr)); err != nil {
		return "", err
	}

	// Ready check is soft: a slow page still yields whatever HTML exists.
	readyCtx, readyCancel := context.WithTimeout(browserCtx, 10*time.Second)
	defer readyCancel()
	_ = chromedp.Run(readyCtx, chromedp.WaitReady("body", chromedp.ByQuery))

	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}
