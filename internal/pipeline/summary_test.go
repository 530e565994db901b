package pipeline

import (
	"testing"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "New agenda: monash 30 January 2024 meeting",
		Subject(domain.AgendaRecord{Council: "monash", Date: "30 January 2024"}))
	assert.Equal(t, "New agenda: monash meeting", Subject(domain.AgendaRecord{Council: "monash"}))
}

func TestSummaryListsDocumentsAndFields(t *testing.T) {
	body, err := Summary(domain.AgendaRecord{
		Council:      "monash",
		Region:       "VIC",
		Date:         "30 January 2024",
		Time:         "7pm",
		WebpageURL:   "https://www.monash.vic.gov.au",
		DownloadURLs: []string{"https://m/a.pdf", "https://m/b.pdf"},
		Titles:       []string{"7.1.1. Town Planning"},
		Fields:       map[string]string{"title": "Item 1", "ward": ""},
	})
	require.NoError(t, err)

	for _, want := range []string{
		"published for monash (VIC).",
		"Meeting date: 30 January 2024",
		"Meeting time: 7pm",
		"Webpage: https://www.monash.vic.gov.au",
		"  - https://m/a.pdf\n  - https://m/b.pdf\n",
		"  - 7.1.1. Town Planning",
		"  title: Item 1\n  ward: (not found)\n",
	} {
		assert.Contains(t, body, want)
	}
}

func TestSummaryOmitsEmptySections(t *testing.T) {
	body, err := Summary(domain.AgendaRecord{Council: "a", DownloadURLs: []string{"http://x/a.pdf"}})
	require.NoError(t, err)
	assert.NotContains(t, body, "Meeting date")
	assert.NotContains(t, body, "Items:")
	assert.NotContains(t, body, "Parsed fields:")
}
