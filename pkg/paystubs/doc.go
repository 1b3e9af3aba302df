// Package paystubs implements the statement retrieval pass.
//
// A pass takes the statement index returned by the portal, plans a
// destination for every record (<year>/<payDate>.pdf, with -1, -2, ...
// appended for repeated pay dates), and downloads the ones that are not
// already on disk. Because the portal lists newest statements first, a run
// of consecutive already downloaded statements means the rest of the
// archive is complete and the pass stops.
//
// Usage:
//
//	store, _ := storage.NewManager(cfg.Download.OutputDir, storage.ValidatePDF)
//	r := paystubs.NewRetriever(client, store, paystubs.Options{
//	    OnlyYear:            cfg.OnlyYear,
//	    MaxConsecutiveSkips: cfg.Download.MaxConsecutiveSkips,
//	}, metrics.NewRun(), log)
//
//	statements, err := client.ListStatements(ctx, cfg.RequestLimit)
//	if err != nil {
//	    return err
//	}
//	result, err := r.DownloadAll(ctx, statements)
package paystubs
