// Package crawler implements the archive pipeline: the shared record types,
// the failure outcomes, the collaborator interfaces, and the Engine that
// drives discovery, download, analysis and reporting for one run.
package crawler
