// Package drift decides whether a note's recorded code still sits where the
// note says it does.
//
// Check compares the first line of the note's code snapshot with the live
// line at the note's start line. Only a prefix is compared: the live line is
// cut to the snapshot line's length, so text appended after the original
// content does not count as drift. Check never changes the note; a moved
// note keeps its stored range until the user edits it.
//
// Auditor runs Check over every note of a workspace, reading the workspace
// files concurrently:
//
//	auditor := drift.NewAuditor(store, logger, &drift.Config{Workers: 4})
//	report, err := auditor.Audit(ctx, workspace)
//	if err != nil {
//	    return err
//	}
//	for _, r := range report.Results {
//	    if r.Status == drift.StatusMoved {
//	        fmt.Println(r.RelativePath, r.NoteID)
//	    }
//	}
package drift
