// Package provider implements the platform collaborators bring-up drives.
// Host simulates an SoC for tests and dry runs; the rp2040 and linux files
// back GPIO and UART with real hardware.
package provider
