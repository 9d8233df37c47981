// Package catalog implements the component catalog service.
//
// The manager owns the component store and coordinates every operation the
// REST API exposes:
//   - Listing components with offset/limit windows
//   - Creating, updating and deleting components
//   - Reading the synthetic history series of seeded components
//   - Publishing change events and recording metrics
//
// The validator enforces the payload rules shared by create and update, and
// the seeder builds the startup dataset together with its generated history.
package catalog
