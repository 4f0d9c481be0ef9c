package browser

import (
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"

	"dhl-tracking-proxy/internal/features/tracking/extract"
)

// harvestScript pulls every text surface the extraction heuristics read, in
// a single round trip. The selector sets mirror the element shapes DHL's
// tracking page has been observed to use; the page markup changes often, so
// the sets stay deliberately broad and the Go side does the filtering.
const harvestScript = `() => {
	const snap = {
		url: window.location.href,
		bodyText: document.body.innerText || '',
		statusTexts: [],
		eventTexts: [],
		tableRows: [],
		listItems: [],
		locationTexts: [],
	};

	const collect = (selectors, out, max) => {
		const seen = new Set();
		for (const selector of selectors) {
			let elements;
			try {
				elements = document.querySelectorAll(selector);
			} catch (e) {
				continue;
			}
			for (const elem of elements) {
				const text = (elem.textContent || '').trim();
				if (!text || seen.has(text)) continue;
				seen.add(text);
				out.push(text);
				if (out.length >= max) return;
			}
		}
	};

	collect([
		'[class*="status"]',
		'[class*="state"]',
		'[class*="shipment-status"]',
		'[class*="tracking-status"]',
		'[data-status]',
		'h1, h2, h3, h4',
		'[class*="alert"]',
		'[class*="badge"]',
		'strong',
		'span[class*="status"]',
	], snap.statusTexts, 200);

	collect([
		'[class*="timeline"] li',
		'[class*="tracking-event"]',
		'[class*="shipment-event"]',
		'[class*="history"] li',
		'[class*="event"]',
		'[class*="status-item"]',
		'[class*="tracking-step"]',
		'[class*="step"]',
		'ol[class*="tracking"] li',
		'ul[class*="tracking"] li',
		'div[class*="tracking"] > div',
		'div[class*="shipment"] > div',
		'div[class*="event"]',
		'div[class*="status"]',
		'[data-tracking-event]',
		'[data-event]',
		'div[class*="row"]',
		'div[class*="card"]',
		'div[class*="item"]',
	], snap.eventTexts, 300);

	const seenRows = new Set();
	for (const row of document.querySelectorAll('table tr')) {
		const cells = Array.from(row.querySelectorAll('td, th'))
			.map(cell => (cell.textContent || '').trim());
		if (cells.every(c => !c)) continue;
		const key = cells.join('|');
		if (seenRows.has(key)) continue;
		seenRows.add(key);
		snap.tableRows.push(cells);
		if (snap.tableRows.length >= 200) break;
	}

	collect(['ol li', 'ul li'], snap.listItems, 400);

	collect([
		'[class*="location"]',
		'[class*="origin"]',
		'[class*="destination"]',
		'[class*="from"]',
		'[class*="to"]',
	], snap.locationTexts, 100);

	return JSON.stringify(snap);
}`

// CollectSnapshot harvests the rendered page into the value the extraction
// engine reads. It is the only place the scraping pipeline touches the DOM
// for data.
func CollectSnapshot(page *rod.Page) (*extract.Snapshot, error) {
	res, err := page.Eval(harvestScript)
	if err != nil {
		return nil, fmt.Errorf("snapshot harvest failed: %w", err)
	}

	var snap extract.Snapshot
	if err := json.Unmarshal([]byte(res.Value.Str()), &snap); err != nil {
		return nil, fmt.Errorf("snapshot decode failed: %w", err)
	}
	return &snap, nil
}
