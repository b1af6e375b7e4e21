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
package queue

import (
	"github.com/gopacket/gopacket"
)

// GoPacket adapts a decoded gopacket packet. The length is the original
// length from the capture metadata if known, the length of the data
// otherwise.
type GoPacket struct {
	gopacket.Packet
}

// Len returns the wire length of the packet.
func (p GoPacket) Len() int {
	if md := p.Metadata(); md != nil && md.Length > 0 {
		return md.Length
	}
	return len(p.Data())
}

// Decode decodes data starting with the given layer and wraps the result.
// The data is not copied.
func Decode(data []byte, first gopacket.Decoder) GoPacket {
	return GoPacket{Packet: gopacket.NewPacket(data, first, gopacket.NoCopy)}
}
