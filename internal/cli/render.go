package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/facegate/internal/credentials"
	"github.com/dmitrijs2005/facegate/internal/models"
	"github.com/dmitrijs2005/facegate/internal/workflow"
)

func renderOutcome(w io.Writer, action string, out workflow.Outcome) {
	switch out.Kind {
	case workflow.Success:
		renderSuccess(w, action, out)
	case workflow.Rejected:
		fmt.Fprintln(w, rejectionMessage(out))
	default:
		fmt.Fprintln(w, faultMessage(out.Err))
	}
}

func renderSuccess(w io.Writer, action string, out workflow.Outcome) {
	if action == "authorize" {
		fmt.Fprintf(w, "Welcome, %s (distance %.3f)\n", out.Name, out.Distance)
		fmt.Fprintf(w, "Grant: %s\n", out.Token)
		return
	}
	if out.Overwritten {
		fmt.Fprintf(w, "Updated face for %s\n", out.Name)
		return
	}
	fmt.Fprintf(w, "Registered %s\n", out.Name)
}

func rejectionMessage(out workflow.Outcome) string {
	switch {
	case errors.Is(out.Err, workflow.ErrNoMatch):
		return "Face not recognized."
	case errors.Is(out.Err, workflow.ErrWrongPassword):
		return fmt.Sprintf("Wrong password for %s.", out.Name)
	case errors.Is(out.Err, workflow.ErrInFlight):
		return fmt.Sprintf("A registration for %s is already running.", out.Name)
	case errors.Is(out.Err, workflow.ErrOverwriteNotConfirmed):
		return fmt.Sprintf("%s is already registered.", out.Name)
	case errors.Is(out.Err, credentials.ErrDuplicateName):
		return fmt.Sprintf("%s is already registered.", out.Name)
	case errors.Is(out.Err, credentials.ErrNotFound):
		return fmt.Sprintf("%s is not registered.", out.Name)
	default:
		return fmt.Sprintf("Rejected: %v", out.Err)
	}
}

func faultMessage(err error) string {
	switch (workflow.Outcome{Err: err}).Category() {
	case "detection":
		return fmt.Sprintf("Could not read a face from the capture (%v). Please retake the photo.", err)
	case "store":
		return fmt.Sprintf("The credential store could not be read (%v).", err)
	case "io":
		return fmt.Sprintf("I/O error (%v).", err)
	default:
		return fmt.Sprintf("Unexpected error (%v).", err)
	}
}

func renderUsers(w io.Writer, users []models.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No identities enrolled.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIGNATURE")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%d values\n", u.ID, u.Name, len(u.Signature))
	}
	tw.Flush()
}
