package timeline

// Clone returns a deep copy sharing no slices or pointers with a.
func (a Arrangement) Clone() Arrangement {
	out := Arrangement{Tracks: make([]Track, len(a.Tracks))}
	for i, track := range a.Tracks {
		out.Tracks[i] = cloneTrack(track)
	}
	return out
}

func cloneTrack(t Track) Track {
	cp := t
	cp.Clips = make([]Clip, len(t.Clips))
	for i, clip := range t.Clips {
		cp.Clips[i] = cloneClip(clip)
	}
	if t.VolumeEnvelope != nil {
		cp.VolumeEnvelope = append([]VolumeKeyframe(nil), t.VolumeEnvelope...)
	}
	if t.Ducking != nil {
		d := *t.Ducking
		cp.Ducking = &d
	}
	return cp
}

func cloneClip(c Clip) Clip {
	cp := c
	cp.TrimIn = cloneFloat(c.TrimIn)
	cp.TrimOut = cloneFloat(c.TrimOut)
	if c.Transition != nil {
		tr := *c.Transition
		cp.Transition = &tr
	}
	return cp
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}
