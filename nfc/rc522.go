//go:build pi
// +build pi

package nfc

// MFRC522 spec can be found here: https://www.nxp.com/docs/en/data-sheet/MFRC522.pdf
// ISO 14443-3 (REQA/anticollision/select/HLTA) is what the card side of this speaks.

import (
	"fmt"
	"github.com/cockroachdb/errors"
	"github.com/ecc1/spi"
	"github.com/jdevelop/golang-rpi-extras/rf522/commands"
	"github.com/jdevelop/gpio"
	rpio "github.com/jdevelop/gpio/rpi"
	log "github.com/sirupsen/logrus"
	"sync"
)

const (
	status2Reg    = 0x08
	mfCrypto1On   = 0x08
	piccReqA      = 0x26
	piccHaltA     = 0x50
	selCascade1   = 0x93
	selCascade2   = 0x95
	cascadeTag    = 0x88
	transceiveMax = 2000
)

var ErrNoCard = errors.New("no card detected")

var stateLock sync.Mutex
var active bool

type rfid struct {
	resetPin    gpio.Pin
	antennaGain int
	maxSpeedHz  int
	spiDev      *spi.Device
}

// CreateReader opens the RC522 on the configured spidev. Only one reader can be open at a time.
func CreateReader(cfg ReaderConfig) (Reader, error) {
	stateLock.Lock()
	defer stateLock.Unlock()
	if active {
		return nil, errors.New("reader already in use")
	}

	// the IRQ pin is connected on the board but is not reliable enough to wait on, so the control loop polls.
	r, err := makeRFID(cfg.Bus, cfg.Device, cfg.MaxSpeedHz, cfg.ResetPin)
	if err != nil {
		return nil, errors.Wrap(err, "could not open the RC522")
	}
	active = true
	log.Infof("RC522 reader ready on /dev/spidev%d.%d", cfg.Bus, cfg.Device)
	return r, nil
}

func (r *rfid) Close() error {
	defer func() {
		stateLock.Lock()
		active = false
		stateLock.Unlock()
	}()
	return r.spiDev.Close()
}

func (r *rfid) TokenPresent() bool {
	_, err := r.request()
	if err != nil && !errors.Is(err, ErrNoCard) {
		log.Debugf("card request failed: %v", err)
	}
	return err == nil
}

func (r *rfid) ReadToken() (Token, error) {
	uid, err := r.antiColl()
	if err != nil {
		return Token{}, err
	}
	return TokenFromUID(uid)
}

// EndSession puts the card in HALT so that it is not picked up again until it leaves the field, and turns off
// Crypto1 on the reader side.
func (r *rfid) EndSession() {
	if err := r.haltA(); err != nil {
		log.Debugf("halt: %v", err)
	}
	if err := r.clearBitmask(status2Reg, mfCrypto1On); err != nil {
		log.Debugf("stop crypto: %v", err)
	}
}

func makeRFID(busId, deviceId, maxSpeed, resetPin int) (*rfid, error) {
	spiDev, err := spi.Open(fmt.Sprintf("/dev/spidev%d.%d", busId, deviceId), maxSpeed, 0)
	if err != nil {
		return nil, err
	}

	if err := spiDev.SetLSBFirst(false); err != nil {
		spiDev.Close()
		return nil, err
	}
	if err := spiDev.SetBitsPerWord(8); err != nil {
		spiDev.Close()
		return nil, err
	}

	dev := &rfid{
		spiDev:      spiDev,
		maxSpeedHz:  maxSpeed,
		antennaGain: 7,
	}

	pin, err := rpio.OpenPin(resetPin, gpio.ModeOutput)
	if err != nil {
		spiDev.Close()
		return nil, errors.Wrapf(err, "could not open reset pin %d", resetPin)
	}
	dev.resetPin = pin
	dev.resetPin.Set()

	if err := dev.init(); err != nil {
		dev.Close()
		return nil, err
	}
	return dev, nil
}

func (r *rfid) init() error {
	if err := r.reset(); err != nil {
		return err
	}
	regs := []struct {
		address int
		value   byte
	}{
		{0x2A, 0x8D}, // TModeReg: timer starts automatically
		{0x2B, 0x3E}, // TPrescalerReg
		{0x2D, 30},   // TReloadRegL
		{0x2C, 0},    // TReloadRegH
		{0x15, 0x40}, // TxASKReg: 100% ASK
		{0x11, 0x3D}, // ModeReg: CRC preset 0x6363
		{0x26, byte(r.antennaGain) << 4},
	}
	for _, reg := range regs {
		if err := r.devWrite(reg.address, reg.value); err != nil {
			return err
		}
	}
	return r.setAntenna(true)
}

func (r *rfid) writeSpiData(dataIn []byte) ([]byte, error) {
	out := make([]byte, len(dataIn))
	copy(out, dataIn)
	err := r.spiDev.Transfer(out)
	return out, err
}

func (r *rfid) devWrite(address int, data byte) error {
	newData := [2]byte{(byte(address) << 1) & 0x7E, data}
	_, err := r.writeSpiData(newData[:])
	return err
}

func (r *rfid) devRead(address int) (byte, error) {
	data := [2]byte{((byte(address) << 1) & 0x7E) | 0x80, 0}
	rb, err := r.writeSpiData(data[:])
	if err != nil {
		return 0, err
	}
	return rb[1], nil
}

func (r *rfid) setBitmask(address, mask int) error {
	current, err := r.devRead(address)
	if err != nil {
		return err
	}
	return r.devWrite(address, current|byte(mask))
}

func (r *rfid) clearBitmask(address, mask int) error {
	current, err := r.devRead(address)
	if err != nil {
		return err
	}
	return r.devWrite(address, current&^byte(mask))
}

func (r *rfid) reset() error {
	return r.devWrite(commands.CommandReg, commands.PCD_RESETPHASE)
}

func (r *rfid) setAntenna(state bool) error {
	if !state {
		return r.clearBitmask(commands.TxControlReg, 0x03)
	}
	current, err := r.devRead(commands.TxControlReg)
	if err != nil {
		return err
	}
	if current&0x03 == 0 {
		return r.setBitmask(commands.TxControlReg, 0x03)
	}
	return nil
}

func (r *rfid) cardWrite(command byte, data []byte) ([]byte, int, error) {
	backData := make([]byte, 0)
	backLength := -1
	irqEn := byte(0x00)
	irqWait := byte(0x00)

	switch command {
	case commands.PCD_AUTHENT:
		irqEn = 0x12
		irqWait = 0x10
	case commands.PCD_TRANSCEIVE:
		irqEn = 0x77
		irqWait = 0x30
	}

	r.devWrite(commands.CommIEnReg, irqEn|0x80)
	r.clearBitmask(commands.CommIrqReg, 0x80)
	r.setBitmask(commands.FIFOLevelReg, 0x80)
	r.devWrite(commands.CommandReg, commands.PCD_IDLE)

	for _, v := range data {
		r.devWrite(commands.FIFODataReg, v)
	}

	r.devWrite(commands.CommandReg, command)

	if command == commands.PCD_TRANSCEIVE {
		r.setBitmask(commands.BitFramingReg, 0x80)
	}

	i := transceiveMax
	n := byte(0)
	for ; i > 0; i-- {
		var err error
		n, err = r.devRead(commands.CommIrqReg)
		if err != nil {
			return nil, backLength, err
		}
		if n&(irqWait|1) != 0 {
			break
		}
	}

	r.clearBitmask(commands.BitFramingReg, 0x80)

	if i == 0 {
		return nil, backLength, errors.Newf("no response after %d loops", transceiveMax)
	}

	d, err := r.devRead(commands.ErrorReg)
	if err != nil {
		return nil, backLength, err
	}
	if d&0x1B != 0 {
		return nil, backLength, errors.Newf("error register 0x%02x", d)
	}

	if n&irqEn&0x01 == 1 {
		return nil, backLength, errors.New("IRQ timer expired")
	}

	if command != commands.PCD_TRANSCEIVE {
		return backData, backLength, nil
	}

	n, err = r.devRead(commands.FIFOLevelReg)
	if err != nil {
		return nil, backLength, err
	}
	lastBits, err := r.devRead(commands.ControlReg)
	if err != nil {
		return nil, backLength, err
	}
	lastBits = lastBits & 0x07
	if lastBits != 0 {
		backLength = (int(n)-1)*8 + int(lastBits)
	} else {
		backLength = int(n) * 8
	}

	if n == 0 {
		n = 1
	}
	if n > 16 {
		n = 16
	}

	for i := byte(0); i < n; i++ {
		b, err := r.devRead(commands.FIFODataReg)
		if err != nil {
			return nil, backLength, err
		}
		backData = append(backData, b)
	}
	return backData, backLength, nil
}

// request sends REQA. Only cards in IDLE answer, so a halted card stays quiet until it is removed.
func (r *rfid) request() (int, error) {
	if err := r.devWrite(commands.BitFramingReg, 0x07); err != nil {
		return 0, err
	}

	_, backBits, err := r.cardWrite(commands.PCD_TRANSCEIVE, []byte{piccReqA})
	if err != nil {
		return -1, ErrNoCard
	}
	if backBits != 0x10 {
		return backBits, errors.Newf("wrong number of bits %d", backBits)
	}
	return backBits, nil
}

func (r *rfid) anticollLevel(sel byte) ([]byte, error) {
	if err := r.devWrite(commands.BitFramingReg, 0x00); err != nil {
		return nil, err
	}
	backData, _, err := r.cardWrite(commands.PCD_TRANSCEIVE, []byte{sel, 0x20})
	if err != nil {
		return nil, errors.Wrap(err, "anticollision")
	}
	if len(backData) != 5 {
		return nil, errors.Newf("anticollision returned %d bytes, expected 5", len(backData))
	}

	bcc := byte(0)
	for _, v := range backData[:4] {
		bcc ^= v
	}
	if bcc != backData[4] {
		return nil, errors.Newf("BCC mismatch, expected %02x actual %02x", bcc, backData[4])
	}
	return backData, nil
}

// selectLevel moves the card to ACTIVE for the given cascade level. The SAK is not needed here.
func (r *rfid) selectLevel(sel byte, uidBcc []byte) error {
	cmd := append([]byte{sel, 0x70}, uidBcc...)
	crc, err := r.crc(cmd)
	if err != nil {
		return err
	}
	if _, _, err := r.cardWrite(commands.PCD_TRANSCEIVE, append(cmd, crc...)); err != nil {
		return errors.Wrapf(err, "select cascade 0x%02x", sel)
	}
	return nil
}

func (r *rfid) antiColl() ([]byte, error) {
	level1, err := r.anticollLevel(selCascade1)
	if err != nil {
		return nil, err
	}
	if err := r.selectLevel(selCascade1, level1); err != nil {
		return nil, err
	}
	if level1[0] != cascadeTag {
		return level1[:4], nil
	}

	log.Debug("cascade level 2 required")
	level2, err := r.anticollLevel(selCascade2)
	if err != nil {
		return nil, err
	}
	if err := r.selectLevel(selCascade2, level2); err != nil {
		return nil, err
	}

	uid := make([]byte, 0, 7)
	uid = append(uid, level1[1:4]...)
	uid = append(uid, level2[:4]...)
	log.Debugf("found 7 byte uid %x", uid)
	return uid, nil
}

func (r *rfid) haltA() error {
	cmd := []byte{piccHaltA, 0x00}
	crc, err := r.crc(cmd)
	if err != nil {
		return err
	}
	// a halted card does not answer, so a timeout here is the expected outcome.
	if _, _, err := r.cardWrite(commands.PCD_TRANSCEIVE, append(cmd, crc...)); err == nil {
		return errors.New("card answered HLTA")
	}
	return nil
}

func (r *rfid) crc(inData []byte) ([]byte, error) {
	res := []byte{0, 0}
	if err := r.clearBitmask(commands.DivIrqReg, 0x04); err != nil {
		return nil, err
	}
	if err := r.setBitmask(commands.FIFOLevelReg, 0x80); err != nil {
		return nil, err
	}
	for _, v := range inData {
		r.devWrite(commands.FIFODataReg, v)
	}
	if err := r.devWrite(commands.CommandReg, commands.PCD_CALCCRC); err != nil {
		return nil, err
	}
	for i := byte(0xFF); i > 0; i-- {
		n, err := r.devRead(commands.DivIrqReg)
		if err != nil {
			return nil, err
		}
		if n&0x04 > 0 {
			break
		}
	}
	lsb, err := r.devRead(commands.CRCResultRegL)
	if err != nil {
		return nil, err
	}
	res[0] = lsb

	msb, err := r.devRead(commands.CRCResultRegM)
	if err != nil {
		return nil, err
	}
	res[1] = msb
	return res, nil
}
