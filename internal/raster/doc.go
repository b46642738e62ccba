// Package raster holds the in-memory grid model for the trend pipeline.
//
// Responsibilities: dense year-labelled layer stacks, validity masking,
// temporal resampling of sub-annual observation cadences into annual
// composites, and gob+gzip snapshot interchange with acquisition tooling.
// Key types: Layer, LayerStack, AnnualSeries.
//
// Dependency rule: raster depends on nothing else in this module; every
// other package may depend on it. No SQL/database code is allowed here.
package raster
