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

package sim

import (
	"net"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"github.com/scionproto/hfsc/pkg/hfsc"
	"github.com/scionproto/hfsc/pkg/hfsc/queue"
	"github.com/scionproto/hfsc/pkg/private/serrors"
)

// MinFrameSize is the smallest packet size that can be sent as a frame.
// Shorter Ethernet frames are padded to this size.
const MinFrameSize = 60

var (
	frameSrcMAC = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x01}
	frameDstMAC = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x02}
	frameSrcIP  = net.IPv4(192, 0, 2, 1).To4()
	frameDstIP  = net.IPv4(192, 0, 2, 2).To4()
)

const frameSrcPort = 40000

// buildFrame serializes an Ethernet/IPv4/UDP frame of size bytes and decodes
// it again. The UDP destination port is the class id.
func buildFrame(id hfsc.ClassID, size int) (*queue.GoPacket, error) {
	if size < MinFrameSize {
		return nil, serrors.New("packet too small for a frame", "size", size,
			"min", MinFrameSize)
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    frameSrcIP,
		DstIP:    frameDstIP,
	}
	udp := &layers.UDP{
		SrcPort: frameSrcPort,
		DstPort: layers.UDPPort(id),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, serrors.Wrap("setting checksum layer", err)
	}
	hdr := 14 + 20 + 8
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	err := gopacket.SerializeLayers(buf, opts,
		&layers.Ethernet{
			SrcMAC:       frameSrcMAC,
			DstMAC:       frameDstMAC,
			EthernetType: layers.EthernetTypeIPv4,
		},
		ip,
		udp,
		gopacket.Payload(make([]byte, size-hdr)),
	)
	if err != nil {
		return nil, serrors.Wrap("serializing frame", err, "size", size)
	}
	p := queue.Decode(buf.Bytes(), layers.LayerTypeEthernet)
	return &p, nil
}
