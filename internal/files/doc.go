// Package files discovers the work-list files the scraper processes.
//
// Work lists are matched by glob pattern inside the data directory. Files the
// scraper writes itself (result_* and log_*) are never treated as input, so a
// data directory that doubles as the results directory stays safe to rescan.
//
// Example usage:
//
//	lists, err := files.Discover("/srv/finscrape/data", []string{"*.csv", "*.tsv"})
//	for _, wl := range lists {
//	    fmt.Println(wl.Name)
//	}
package files
