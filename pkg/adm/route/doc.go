// Package route enumerates routes through an ADM reference graph.
//
// # Overview
//
// A [Route] is the chain of entities from one audioProgramme down to one
// audioChannelFormat:
//
//	APR_1001 -> ACO_1001 -> AO_1001 -> AP_00031001 -> AC_00031001 -> ATU_00000001 -> AT_00031001_01 -> AS_00031001
//
// Each link is tagged with its [adm.Kind], so role entities can be recovered
// regardless of how deep the chain is. [Route.LastOf] with adm.KindObject
// returns the terminal object of a nested object chain, [Route.AllOf]
// returns every object along it.
//
// [Tracer.Run] walks the graph depth first and branches at every
// multi-reference point. Distinct routes may share entities, such as a
// channel format used by two packs. A repeated entity on the current path is
// reported as [ErrCycle] rather than silently truncated.
package route
