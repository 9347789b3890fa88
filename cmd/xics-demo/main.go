// Command xics-demo wires a Controller to a handful of adapted PC-era
// device models and drives it through a hypercall/RTAS dispatcher, the
// way a guest kernel's interrupt subsystem would during boot and normal
// operation. It exists to exercise the whole stack end to end, the same
// role the teacher's cmd/v-architect main played for its KVM engine.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"example.com/xics-controller/devices"
	"example.com/xics-controller/xics"
	"example.com/xics-controller/xics/hypercall"
	"example.com/xics-controller/xics/pin"
	"example.com/xics-controller/xics/rtas"
)

func main() {
	nrIRQs := flag.Int("irqs", 16, "number of ICS sources to allocate")
	nrServers := flag.Int("servers", 2, "number of ICP presenters (virtual CPUs)")
	debug := flag.Bool("debug", false, "trace source rejects and deliveries")
	flag.Parse()

	pins := make([]xics.Pin, *nrServers)
	for i := range pins {
		pins[i] = &pin.Memory{}
	}

	ctrl, err := xics.NewController(*nrIRQs, pins)
	if err != nil {
		log.Fatalf("xics-demo: %v", err)
	}
	ctrl.Debug = *debug

	if err := ctrl.ConfigureSource(xics.Offset+uint32(devices.PITSourceNumber), false, 0, 5); err != nil {
		log.Fatalf("xics-demo: configuring PIT source: %v", err)
	}
	if err := ctrl.ConfigureSource(xics.Offset+uint32(devices.KeyboardSourceNumber), false, 0, 5); err != nil {
		log.Fatalf("xics-demo: configuring keyboard source: %v", err)
	}
	if err := ctrl.ConfigureSource(xics.Offset+uint32(devices.SerialSourceNumber), false, 0, 5); err != nil {
		log.Fatalf("xics-demo: configuring serial source: %v", err)
	}
	if err := ctrl.ConfigureSource(xics.Offset+uint32(devices.RTCSourceNumber), true, 0, 5); err != nil {
		log.Fatalf("xics-demo: configuring RTC source: %v", err)
	}

	bus := devices.NewIOBus()
	pitDev := devices.NewPITDevice(ctrl, devices.PITSourceNumber)
	kbdDev := devices.NewKeyboardDevice(ctrl, devices.KeyboardSourceNumber)
	serDev := devices.NewSerialPortDevice(os.Stdout, ctrl, devices.SerialSourceNumber)
	rtcDev := devices.NewRTCDevice(ctrl, devices.RTCSourceNumber)

	bus.RegisterDevice(devices.PITPortCounter0, devices.PITPortCommand, pitDev)
	bus.RegisterDevice(devices.KeyboardPortData, devices.KeyboardPortStatus, kbdDev)
	bus.RegisterDevice(devices.COM1PortBase, devices.COM1PortBase+7, serDev)
	bus.RegisterDevice(devices.RTCPortIndex, devices.RTCPortData, rtcDev)

	hc := hypercall.New(ctrl)
	rt := rtas.New(ctrl)

	// Simulate a guest kernel bringing up virtual CPU 0: mask everything,
	// then drop to an operating priority that admits the devices we just
	// configured above priority 5.
	if status := hc.HCPPR(0, 0x00); status != hypercall.HSuccess {
		log.Fatalf("xics-demo: H_CPPR(mask) failed: %v", status)
	}
	if status := hc.HCPPR(0, 0xff); status != hypercall.HSuccess {
		log.Fatalf("xics-demo: H_CPPR(unmask) failed: %v", status)
	}

	// Poke the keyboard buffer, which raises its ICS source.
	kbdDev.PushKey('V')

	xirr, status := hc.HXIRR(0)
	if status != hypercall.HSuccess {
		log.Fatalf("xics-demo: H_XIRR failed: %v", status)
	}
	fmt.Printf("vcpu0 accepted xirr=0x%08x\n", xirr)

	if data := []byte{0}; true {
		_ = bus.HandleIO(devices.KeyboardPortData, devices.IODirectionIn, 1, data)
		fmt.Printf("keyboard data port returned %q\n", string(data[0]))
	}

	if status := hc.HEOI(0, xirr); status != hypercall.HSuccess {
		log.Fatalf("xics-demo: H_EOI failed: %v", status)
	}

	// Exercise the RTAS configuration surface: re-route the RTC source to
	// server 1 at priority 3, then read it back.
	setArgs := []uint32{xics.Offset + uint32(devices.RTCSourceNumber), 1, 3}
	setRets := make([]int64, 1)
	rt.SetXive(setArgs, setRets)
	fmt.Printf("ibm,set-xive(rtc) -> rc=%d\n", setRets[0])

	getArgs := []uint32{xics.Offset + uint32(devices.RTCSourceNumber)}
	getRets := make([]int64, 3)
	rt.GetXive(getArgs, getRets)
	fmt.Printf("ibm,get-xive(rtc) -> rc=%d server=%d priority=%d\n", getRets[0], getRets[1], getRets[2])
}
