// Package instagram understands Instagram reel URLs and the metadata the
// extraction tool reports for them.
//
// It validates request URLs, parses shortcodes, resolves the uploader name
// through an ordered list of strategies and builds a Reel with the permissive
// defaults used when metadata is missing.
package instagram
