// Package rtexec implements a cyclic-executive real-time scheduler with
// slack stealing for aperiodic work. It orchestrates a fixed set of
// periodic tasks according to a statically-defined frame schedule (the
// major cycle), while opportunistically servicing aperiodic requests
// during spare ("slack") time.
//
// The scheduler targets a uniprocessor real-time environment: it pins
// itself and every worker to one CPU and relies on fixed-priority
// preemption supplied by the host OS (see package platform) rather than
// multicore parallelism for its timing properties.
package rtexec
