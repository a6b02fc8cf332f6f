// Package vision holds the shared primitives for the crowd analysis
// data model: pixel-space geometry, the Detection boundary type, and
// the assignment solver used by the optional optimal association mode.
//
// Layer packages build on these primitives:
//
//	v2detect  — detection adapters (Layer 2)
//	v3tracks  — track store and association (Layer 3)
//	v4groups  — group merging (Layer 4)
//	v5density — density classification (Layer 5)
//	v6stats   — rolling frame statistics (Layer 6)
//
// Dependency rule: layer N may depend on layers below it, never above.
package vision
