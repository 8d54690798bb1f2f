// Package dag records which scene blocks reference which, and rejects
// reference cycles before any element is built.
package dag
