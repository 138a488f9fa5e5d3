// Package config loads the scraper configuration.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML file: $FINSCRAPE_CONFIG, config.yaml or configs/config.yaml
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// Variables follow the pattern FINSCRAPE_<SECTION>_<FIELD>:
//
//	FINSCRAPE_PATHS_DATA_DIR=/srv/scrape/data
//	FINSCRAPE_SOURCE_FALLBACK_REGISTRIES=NASDAQ,NYSE
//	FINSCRAPE_BROWSER_POLITENESS_BASE=3s
//	FINSCRAPE_WORK_LIST_DELIMITER=tab
//	FINSCRAPE_LEDGER_DB_PATH=logs/attempts.db
//
// The loaded configuration is validated with struct tags; any failure is a
// CONFIG error and the binary exits before touching a work list.
//
// Paths resolves the configured directories and owns the naming of
// checkpoint (logs/log_<work list>.txt) and result (results/result_<work list>)
// files.
package config
