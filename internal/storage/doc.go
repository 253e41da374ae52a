// Package storage publishes course archives to S3.
//
// The Uploader interface is the only thing the packager depends on; S3Uploader
// implements it with aws-sdk-go-v2 using the default credential chain.
package storage
