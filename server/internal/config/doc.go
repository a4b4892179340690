// Package config loads the dashboard configuration from config.yaml.
//
// Config fields:
//   - Server.HTTPPort          - port for the REST API, charts and WebSocket hub (default 8080)
//   - Server.UIDir             - optional directory of static UI files
//   - Server.BroadcastInterval - WebSocket reload check interval (default 5s)
//   - Dataset.Path / URL       - where the yearly clinic table lives (exactly one)
//   - Dataset.Format           - auto | csv | xlsx | xls (default auto)
//   - Dataset.Watch            - reload a file dataset on change
//   - Dataset.FetchTimeout     - URL download timeout (default 10s)
//   - Dashboard.ThresholdYear  - before/after split year (default 1847)
//   - Log.Level                - debug | info | warn | error (default info)
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, onChange) reloads the file with fsnotify.
package config
