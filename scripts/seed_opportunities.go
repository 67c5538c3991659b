// seed_opportunities.go — standalone script to parse a CSV of opportunities
// and submit them to the Triage evaluation API.
//
// Usage:
//
//	go run scripts/seed_opportunities.go -csv /path/to/opportunities.csv -api http://localhost:8700
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"
)

type seedOpportunity struct {
	ID                 string   `json:"id"`
	SolicitationNumber string   `json:"solicitation_number,omitempty"`
	Title              string   `json:"title,omitempty"`
	Description        string   `json:"description,omitempty"`
	Agency             string   `json:"agency,omitempty"`
	NAICSCode          string   `json:"naics_code,omitempty"`
	SetAside           string   `json:"set_aside,omitempty"`
	EstimatedValue     *float64 `json:"estimated_value,omitempty"`
	ResponseDeadline   *string  `json:"response_deadline,omitempty"`
}

type evaluateRequest struct {
	TriggerID   string          `json:"trigger_id"`
	DecidedBy   string          `json:"decided_by"`
	Opportunity seedOpportunity `json:"opportunity"`
}

// CSV columns: id, solicitation_number, title, description, agency,
// naics_code, set_aside, estimated_value, response_deadline (RFC 3339).
func main() {
	csvPath := flag.String("csv", "opportunities.csv", "path to opportunities CSV")
	apiURL := flag.String("api", "http://localhost:8700", "Triage API base URL")
	decidedBy := flag.String("by", "seed-script", "decided_by value for created records")
	dryRun := flag.Bool("dry-run", false, "print requests without posting")
	flag.Parse()

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		log.Fatalf("read header: %v", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}

	triggerID := "seed-" + time.Now().UTC().Format("2006-01-02")
	posted, failed := 0, 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("read row: %v", err)
		}

		field := func(name string) string {
			if i, ok := col[name]; ok && i < len(record) {
				return record[i]
			}
			return ""
		}

		opp := seedOpportunity{
			ID:                 field("id"),
			SolicitationNumber: field("solicitation_number"),
			Title:              field("title"),
			Description:        field("description"),
			Agency:             field("agency"),
			NAICSCode:          field("naics_code"),
			SetAside:           field("set_aside"),
		}
		if opp.ID == "" {
			log.Printf("skipping row with no id: %v", record)
			continue
		}
		if v := field("estimated_value"); v != "" {
			if value, err := strconv.ParseFloat(v, 64); err == nil {
				opp.EstimatedValue = &value
			}
		}
		if d := field("response_deadline"); d != "" {
			opp.ResponseDeadline = &d
		}

		req := evaluateRequest{TriggerID: triggerID, DecidedBy: *decidedBy, Opportunity: opp}
		payload, _ := json.MarshalIndent(req, "", "  ")
		if *dryRun {
			fmt.Println(string(payload))
			continue
		}

		resp, err := http.Post(*apiURL+"/api/v1/evaluations", "application/json", bytes.NewReader(payload))
		if err != nil {
			log.Printf("post %s: %v", opp.ID, err)
			failed++
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			log.Printf("post %s: %d %s", opp.ID, resp.StatusCode, string(body))
			failed++
			continue
		}
		posted++
	}

	log.Printf("seeded %d opportunities (%d failed)", posted, failed)
}
