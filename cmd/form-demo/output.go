// cmd/form-demo/output.go
package main

import (
	"fmt"
	"io"
	"time"

	"form-pipeline/internal/common/pipeline"
	"form-pipeline/internal/common/store"
	"form-pipeline/internal/models"
)

func printResult(w io.Writer, source string, res pipeline.Result) {
	switch res.Outcome {
	case pipeline.OutcomeSuccess:
		fmt.Fprintf(w, "%s: stored %s\n", source, res.Submission.ID)
	case pipeline.OutcomeFailed:
		fmt.Fprintf(w, "%s: %d field error(s)\n", source, len(res.Errors))
		printFieldErrors(w, res.Errors)
	case pipeline.OutcomeAborted:
		fmt.Fprintf(w, "%s: aborted: %v\n", source, res.Err)
	case pipeline.OutcomeIgnored:
		fmt.Fprintf(w, "%s: ignored, another submit is running\n", source)
	}
}

func printFieldErrors(w io.Writer, errs models.FieldErrors) {
	for _, field := range errs.Fields() {
		fmt.Fprintf(w, "  %-16s %s\n", field+":", errs[field])
	}
}

// printListing renders the stored submissions; the highlighted one is
// marked with '*'.
func printListing(w io.Writer, snap store.Snapshot) {
	if len(snap.Submissions) == 0 {
		fmt.Fprintln(w, "No submissions yet")
		return
	}
	for _, s := range snap.Submissions {
		marker := " "
		if s.ID == snap.LatestID {
			marker = "*"
		}
		image := "none"
		if s.HasImage() {
			image = fmt.Sprintf("%d bytes encoded", len(s.Image))
		}
		fmt.Fprintf(w, "%s %s [%s]\n", marker, s.FormType.Title(), s.ID)
		fmt.Fprintf(w, "    name: %s  age: %d  email: %s\n", s.Name, s.Age, s.Email)
		fmt.Fprintf(w, "    gender: %s  country: %s  terms: %t\n", s.Gender, s.Country, s.AcceptTerms)
		fmt.Fprintf(w, "    image: %s  at: %s\n", image, s.Timestamp.Format(time.RFC3339))
	}
}
