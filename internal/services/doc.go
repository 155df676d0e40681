// Package services holds the error taxonomy and context helpers shared by
// the external tool clients and the pipeline stages that drive them.
package services
