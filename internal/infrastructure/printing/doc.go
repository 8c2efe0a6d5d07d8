// Package printing renders invoices to PDF. An html/template produces the
// invoice page and a headless Chrome instance, driven over the DevTools
// protocol by chromedp, prints it.
//
//	chrome, err := NewChromedpRenderer(&ChromedpConfig{RemoteURL: "ws://chrome:9222"})
//	if err != nil {
//	    return err
//	}
//	defer chrome.Close()
//
//	renderer, err := NewInvoiceRenderer(chrome)
//	pdf, err := renderer.RenderInvoice(ctx, doc)
package printing
