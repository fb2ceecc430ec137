package jobstore

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// simpleFields are copied straight from the document into the flat row.
var simpleFields = []string{
	"is_job_page", "confidence_reason", "title", "company_name",
	"holiday", "job_type", "contract_type", "remote_option",
	"job_reference", "description", "company_info", "how_to_apply", "main_domain",
	"filter_domain", "url", "is_known_ats", "is_ats", "is_external_application",
	"ats_provider", "detection_reason", "domain", "scraped_at",
}

// priorityFields lead the CSV so the columns people scan first come
// first; everything else follows alphabetically.
var priorityFields = []string{
	"title", "company_name", "location_city", "location_region", "location_country",
	"salary_min", "salary_max", "salary_currency", "salary_period", "salary_raw",
	"job_type", "contract_type", "remote_option", "closing_date_iso", "closing_date_raw",
}

// FlattenJob converts one nested posting document into a flat row for
// CSV export. Missing values become empty cells.
func FlattenJob(job map[string]interface{}) map[string]string {
	flat := map[string]string{}

	for _, f := range simpleFields {
		flat[f] = stringify(job[f])
	}

	location := subDoc(job, "location")
	flat["location_address"] = stringify(location["address"])
	flat["location_city"] = stringify(location["city"])
	flat["location_region"] = stringify(location["region"])
	flat["location_postcode"] = stringify(location["postcode"])
	flat["location_country"] = stringify(location["country"])

	salary := subDoc(job, "salary")
	flat["salary_min"] = stringify(salary["min"])
	flat["salary_max"] = stringify(salary["max"])
	flat["salary_currency"] = stringify(salary["currency"])
	flat["salary_period"] = stringify(salary["period"])
	flat["salary_actual"] = stringify(salary["actual_salary"])
	flat["salary_raw"] = stringify(salary["raw"])

	hours := subDoc(job, "hours")
	flat["hours_weekly"] = stringify(hours["weekly"])
	flat["hours_daily"] = stringify(hours["daily"])
	flat["hours_details"] = stringify(hours["details"])

	for _, dateField := range []string{"closing_date", "interview_date", "start_date", "post_date"} {
		d := subDoc(job, dateField)
		flat[dateField+"_iso"] = stringify(d["iso_format"])
		flat[dateField+"_raw"] = stringify(d["raw_text"])
	}

	contact := subDoc(job, "contact")
	flat["contact_name"] = stringify(contact["name"])
	flat["contact_email"] = stringify(contact["email"])
	flat["contact_phone"] = stringify(contact["phone"])

	app := subDoc(job, "application_method")
	flat["application_type"] = stringify(app["type"])
	flat["application_url"] = stringify(app["url"])
	flat["application_email"] = stringify(app["email"])
	flat["application_instructions"] = stringify(app["instructions"])

	flat["responsibilities"] = joinList(job["responsibilities"])
	flat["requirements"] = joinList(job["requirements"])
	flat["benefits"] = joinList(job["benefits"])

	if additional := subDoc(job, "additional_sections"); len(additional) > 0 {
		if raw, err := json.Marshal(additional); err == nil {
			flat["additional_sections"] = string(raw)
		}
	} else {
		flat["additional_sections"] = ""
	}

	return flat
}

// WriteCSV flattens jobs and writes them with a header row.
func WriteCSV(w io.Writer, jobs []map[string]interface{}) error {
	if len(jobs) == 0 {
		return fmt.Errorf("no jobs to export")
	}

	rows := make([]map[string]string, len(jobs))
	fieldSet := map[string]struct{}{}
	for i, job := range jobs {
		rows[i] = FlattenJob(job)
		for k := range rows[i] {
			fieldSet[k] = struct{}{}
		}
	}
	fields := orderFields(fieldSet)

	cw := csv.NewWriter(w)
	if err := cw.Write(fields); err != nil {
		return err
	}
	record := make([]string, len(fields))
	for _, row := range rows {
		for i, f := range fields {
			record[i] = row[f]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func orderFields(fieldSet map[string]struct{}) []string {
	ordered := make([]string, 0, len(fieldSet))
	seen := map[string]struct{}{}
	for _, f := range priorityFields {
		if _, ok := fieldSet[f]; ok {
			ordered = append(ordered, f)
			seen[f] = struct{}{}
		}
	}
	remaining := make([]string, 0, len(fieldSet))
	for f := range fieldSet {
		if _, ok := seen[f]; !ok {
			remaining = append(remaining, f)
		}
	}
	sort.Strings(remaining)
	return append(ordered, remaining...)
}

// subDoc reads a nested object, tolerating both bson.M style maps and
// plain decoded JSON.
func subDoc(job map[string]interface{}, key string) map[string]interface{} {
	switch v := job[key].(type) {
	case map[string]interface{}:
		return v
	case primitive.M:
		return map[string]interface{}(v)
	default:
		return map[string]interface{}{}
	}
}

func joinList(v interface{}) string {
	items := []string{}
	switch list := v.(type) {
	case []interface{}:
		for _, it := range list {
			if s := stringify(it); s != "" {
				items = append(items, s)
			}
		}
	case primitive.A:
		for _, it := range list {
			if s := stringify(it); s != "" {
				items = append(items, s)
			}
		}
	case []string:
		items = list
	}
	return strings.Join(items, "; ")
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case primitive.DateTime:
		return val.Time().UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
