// Package data stages the data files a course declares.
//
// Files are fetched from the course data_url, or from the S3 bucket named in
// the control file, into a local cache that survives `kosu clean`. Each build
// copies from that cache, inflating zip archives on the way. Data URLs found in
// notebooks are checked with HEAD requests before anything is downloaded.
package data
