// Package staging manages the scratch area that holds normalized audio while
// a run is in progress. Each run works in its own directory under the
// scratch root; directories left behind by crashed runs are removed once
// they are older than StaleAfter.
package staging
