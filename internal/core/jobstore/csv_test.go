package jobstore

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleJob() map[string]interface{} {
	return map[string]interface{}{
		"title":        "Care Assistant",
		"company_name": "Sunrise Care",
		"url":          "https://sunrisecare.co.uk/jobs/care-assistant",
		"is_ats":       false,
		"location": map[string]interface{}{
			"city":    "Leeds",
			"region":  "West Yorkshire",
			"country": "UK",
		},
		"salary": map[string]interface{}{
			"min":      float64(22000),
			"max":      float64(24500),
			"currency": "GBP",
			"period":   "annual",
			"raw":      "£22,000 - £24,500 per annum",
		},
		"closing_date": map[string]interface{}{
			"iso_format": "2026-09-30",
			"raw_text":   "30th September 2026",
		},
		"responsibilities": []interface{}{"Personal care", "Record keeping"},
		"additional_sections": map[string]interface{}{
			"Shift pattern": "Days and nights",
		},
	}
}

func TestFlattenJob(t *testing.T) {
	flat := FlattenJob(sampleJob())

	assert.Equal(t, "Care Assistant", flat["title"])
	assert.Equal(t, "Leeds", flat["location_city"])
	assert.Equal(t, "West Yorkshire", flat["location_region"])
	assert.Equal(t, "22000", flat["salary_min"])
	assert.Equal(t, "£22,000 - £24,500 per annum", flat["salary_raw"])
	assert.Equal(t, "2026-09-30", flat["closing_date_iso"])
	assert.Equal(t, "30th September 2026", flat["closing_date_raw"])
	assert.Equal(t, "Personal care; Record keeping", flat["responsibilities"])
	assert.Equal(t, "false", flat["is_ats"])
	assert.JSONEq(t, `{"Shift pattern":"Days and nights"}`, flat["additional_sections"])

	assert.Equal(t, "", flat["contact_email"])
	assert.Equal(t, "", flat["interview_date_iso"])
}

func TestFlattenJobEmptyDocument(t *testing.T) {
	flat := FlattenJob(map[string]interface{}{})

	assert.Equal(t, "", flat["title"])
	assert.Equal(t, "", flat["salary_min"])
	assert.Equal(t, "", flat["additional_sections"])
	assert.Equal(t, "", flat["benefits"])
}

func TestWriteCSVColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []map[string]interface{}{sampleJob()})
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header := records[0]
	assert.Equal(t, "title", header[0])
	assert.Equal(t, "company_name", header[1])
	assert.Equal(t, "location_city", header[2])
	assert.Equal(t, "salary_min", header[5])

	// Non-priority columns are sorted alphabetically after the lead block.
	tail := header[len(priorityFields):]
	for i := 1; i < len(tail); i++ {
		assert.LessOrEqual(t, tail[i-1], tail[i])
	}

	row := records[1]
	assert.Equal(t, "Care Assistant", row[0])
	assert.Equal(t, "Sunrise Care", row[1])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, nil)
	assert.Error(t, err)
}
