// Package report renders daemon status snapshots.
//
// The status command assembles a model.StatusReport and hands it to a
// Writer: SimpleWriter for terminal display, MarkdownWriter for
// documentation and sharing. Both render the same snapshot; only the
// formatting differs.
package report
