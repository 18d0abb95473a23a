// Package storage provides backends for load-run reports.
//
//   - SQLite: durable storage on the pure-Go modernc driver by default, or
//     mattn/go-sqlite3 when the "cgo" driver is configured
//   - Memory: in-process storage for tests and throwaway runs
//
// Both return reports newest first and honour every report.Query filter.
//
//	st, err := storage.Open(cfg.Reports.Storage)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
package storage
