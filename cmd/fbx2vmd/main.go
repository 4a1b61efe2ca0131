package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/AmyangXYZ/Mixamo-MMD/converter"
	"github.com/AmyangXYZ/Mixamo-MMD/fbx"
	"github.com/AmyangXYZ/Mixamo-MMD/mmd"
	"github.com/qmuntal/gltf"
)

func defaultOutputFile(input string) string {
	ext := filepath.Ext(input)
	return input[0:len(input)-len(ext)] + ".vmd"
}

func saveVMD(doc *fbx.Document, output string, options *converter.FBXToVMDOption) error {
	anim, err := converter.NewFBXToVMDConverter(options).Convert(doc)
	if err != nil {
		return err
	}
	w, err := os.Create(output)
	if err != nil {
		return err
	}
	defer w.Close()
	return mmd.WriteVMD(anim, w)
}

func saveGlb(doc *fbx.Document, output string) error {
	clips := converter.ExtractClips(doc)
	if len(clips) == 0 {
		return fmt.Errorf("no animation in input")
	}
	return gltf.SaveBinary(converter.ClipToGLTF(clips[0]), output)
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s input.fbx [output.vmd]\n", os.Args[0])
		flag.PrintDefaults()
	}
	fps := flag.Float64("fps", 30, "output frame rate")
	scale := flag.Float64("scale", 0, "translation scale (0:default)")
	yoffset := flag.Float64("yoffset", 0, "height offset (0:default)")
	model := flag.String("model", "", "model name written to the motion header")
	conf := flag.String("config", "", "retarget preset file (.yaml)")
	dump := flag.Bool("dump", false, "dump the node tree and exit")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return
	}
	input := flag.Arg(0)
	output := flag.Arg(1)
	if output == "" {
		output = defaultOutputFile(input)
	}

	doc, err := fbx.Load(input)
	if err != nil {
		log.Fatal(err)
	}

	if *dump {
		for _, n := range doc.RawNode.Children {
			n.Dump(os.Stdout, 0, false)
		}
		return
	}

	options := &converter.FBXToVMDOption{
		FPS:       *fps,
		ModelName: *model,
		Retarget:  &converter.RetargetOption{Scale: *scale, HeightOffset: *yoffset},
	}
	if *conf != "" {
		c, err := converter.LoadVMDConfig(*conf)
		if err != nil {
			log.Fatal(err)
		}
		c.ApplyTo(options)
	}

	if strings.ToLower(filepath.Ext(output)) == ".glb" {
		err = saveGlb(doc, output)
	} else {
		err = saveVMD(doc, output, options)
	}
	if err != nil {
		log.Fatal(err)
	}
	log.Println("ok: ", output)
}
