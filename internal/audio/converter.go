package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Output encodings for synthesized speech.
const (
	EncodingPCM   = "pcm"   // 16-bit signed little-endian
	EncodingMulaw = "mulaw" // G.711 PCMU
)

// BytesToSamples decodes 16-bit signed little-endian PCM. A trailing odd byte is ignored.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// SamplesToBytes encodes samples as 16-bit signed little-endian PCM.
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

// Encode converts synthesized PCM at inputRate into the client's playback
// encoding at outputRate.
func Encode(pcmData []byte, inputRate, outputRate int, encoding string) ([]byte, error) {
	switch encoding {
	case EncodingMulaw:
		return ConvertPCMToPCMU(pcmData, inputRate, outputRate)
	case EncodingPCM, "":
		if len(pcmData)%2 != 0 {
			return nil, fmt.Errorf("PCM data length must be even (16-bit samples)")
		}
		if inputRate == outputRate {
			return pcmData, nil
		}
		return SamplesToBytes(Resample(BytesToSamples(pcmData), inputRate, outputRate)), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

// BytesPerSecond returns the data rate of one mono channel in encoding.
func BytesPerSecond(sampleRate int, encoding string) int {
	if encoding == EncodingMulaw {
		return sampleRate
	}
	return sampleRate * 2
}

// ConvertPCMToPCMU converts linear PCM audio to G.711 PCMU (μ-law) format
// Input: PCM audio data (16-bit signed integers, little-endian)
// Output: PCMU (μ-law) encoded audio data
func ConvertPCMToPCMU(pcmData []byte, inputSampleRate, outputSampleRate int) ([]byte, error) {
	if len(pcmData) == 0 {
		return nil, fmt.Errorf("empty PCM data")
	}
	if len(pcmData)%2 != 0 {
		return nil, fmt.Errorf("PCM data length must be even (16-bit samples)")
	}

	samples := BytesToSamples(pcmData)
	if inputSampleRate != outputSampleRate {
		samples = Resample(samples, inputSampleRate, outputSampleRate)
	}

	pcmuData := make([]byte, len(samples))
	for i, sample := range samples {
		pcmuData[i] = linearToMulaw(sample)
	}

	return pcmuData, nil
}

// Resample performs linear interpolation resampling.
func Resample(samples []int16, inputRate, outputRate int) []int16 {
	if inputRate == outputRate || inputRate <= 0 || outputRate <= 0 || len(samples) == 0 {
		return samples
	}

	ratio := float64(outputRate) / float64(inputRate)
	outputLength := int(float64(len(samples)) * ratio)
	output := make([]int16, outputLength)

	for i := 0; i < outputLength; i++ {
		srcPos := float64(i) / ratio

		idx0 := int(srcPos)
		if idx0 >= len(samples) {
			idx0 = len(samples) - 1
		}
		idx1 := idx0 + 1
		if idx1 >= len(samples) {
			idx1 = len(samples) - 1
		}

		fraction := srcPos - float64(idx0)
		output[i] = int16(float64(samples[idx0])*(1.0-fraction) + float64(samples[idx1])*fraction)
	}

	return output
}

// linearToMulaw converts a 16-bit linear PCM sample to 8-bit μ-law (ITU-T G.711).
func linearToMulaw(sample int16) byte {
	const (
		clip = 32635
		bias = 0x84
	)

	var sign byte
	magnitude := int32(sample)
	if magnitude < 0 {
		sign = 0x80
		magnitude = -magnitude
	}
	if magnitude > clip {
		magnitude = clip
	}
	magnitude += bias

	// Segment is the position of the highest set bit above bit 7.
	segment := byte(7)
	for mask := int32(0x4000); segment > 0 && magnitude&mask == 0; mask >>= 1 {
		segment--
	}

	mantissa := byte((magnitude >> (segment + 3)) & 0x0F)
	return ^(sign | (segment << 4) | mantissa)
}

// mulawToLinear converts an 8-bit μ-law sample back to 16-bit linear PCM.
func mulawToLinear(mulawByte byte) int16 {
	mulawByte = ^mulawByte

	sign := mulawByte & 0x80
	segment := (mulawByte >> 4) & 0x07
	mantissa := int32(mulawByte & 0x0F)

	magnitude := ((mantissa << 3) + 0x84) << segment
	magnitude -= 0x84

	if sign != 0 {
		return int16(-magnitude)
	}
	return int16(magnitude)
}

// CalculateRMS calculates the root mean square (RMS) of audio samples
func CalculateRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, sample := range samples {
		sum += float64(sample) * float64(sample)
	}

	return math.Sqrt(sum / float64(len(samples)))
}
