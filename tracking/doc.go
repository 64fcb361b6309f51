// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracking simulates a small fleet of units in motion. Each
// tick applies bounded random walks to occupancy and price, advances
// every unit toward its destination, and publishes one batched update
// for the whole fleet. One event per tick, not one per unit, so
// subscribers see a consistent fleet snapshot.
package tracking
