// Copyright 2026 Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package hfscconf

const schedulerSample = `
# Capacity of the class table. (default 64)
max_classes = 64

# Lag of the fit time behind the current time that is tolerated for classes
# with an upper limit. A larger slack allows larger bursts after idle
# periods. (default 1ms)
timer_slack = "1ms"

# Class that receives the packets for unknown or interior classes. It must be
# a leaf. If not set, such packets are dropped. (default "")
default_class = "bulk"
`

const classSample = `
# Classes are created in the order of appearance, a parent must precede its
# children. Exactly one class has no parent, the root class.
#
# A class has up to three service curves: rt (real-time), ls (link-sharing)
# and ul (upper limit). A curve has a rate m1 for the duration d and the rate
# m2 afterwards. Rates are in bits per second and accept SI prefixes, e.g.
# "500kbit" or "10Mbit". Every class needs rt or ls, parents need ls.
[[class]]
# Name of the class. (required)
name = "root"
ls = { m2 = "10Mbit" }

[[class]]
name = "voice"
# Name of the parent class. (required except for the root class)
parent = "root"
rt = { m1 = "2Mbit", d = "5ms", m2 = "500kbit" }

[[class]]
name = "bulk"
parent = "root"
ls = { m2 = "9Mbit" }
ul = { m2 = "8Mbit" }
# Queue limit in packets. (default 50)
queue_limit = 100
# Queue discipline (fifo|red). (default fifo)
queue = "red"

# Random early detection parameters. Thresholds are average queue lengths in
# packets.
[class.red]
# Average queue length where early drops start. (default 5)
min_threshold = 10.0
# Average queue length where every packet is dropped. (default 15)
max_threshold = 40.0
# Drop probability at max_threshold. (default 0.1)
max_probability = 0.1
# Weight of the current queue length in the average. (default 1/512)
weight = 0.001953125
# Seed of the random source. (default 0)
seed = 1
`

const simulationSample = `
# Simulation of a link. Only used by hfsc-sim.
[simulation]
# Rate of the link. (default m2 of the ls curve of the root class)
link_rate = "10Mbit"
# Simulated time. (default 10s)
duration = "10s"
# Time the link waits before it retries when the queued packets are held
# back by upper limits. (default 100us)
retry = "100us"
# Send Ethernet/IPv4/UDP frames instead of bare packet sizes. Packets must
# be at least 60 bytes. (default false)
frames = false

# Traffic sources. A backlogged source keeps its class backlogged, a cbr
# source sends at a constant rate and a shaped source sends as fast as a
# token bucket of the given rate and burst allows.
[[simulation.source]]
# Class that receives the packets. (required)
class = "voice"
# Kind of the source (backlogged|cbr|shaped). (default backlogged)
kind = "cbr"
# Packet size in bytes. (default 1000)
size = 200
# Rate of cbr and shaped sources.
rate = "400kbit"
# Start and stop of cbr sources. (default 0s, never)
start = "1s"
stop = "9s"

[[simulation.source]]
class = "bulk"
size = 1500
# Number of packets kept queued by backlogged sources. (default 2)
backlog = 20
`
